package insights

import (
	"context"
	"fmt"
	"strings"

	"github.com/grupoblue/lead-insights/internal/journey"
	"github.com/grupoblue/lead-insights/pkg/logging"
)

const systemInstruction = "Você é um especialista em análise de marketing e vendas. " +
	"Sua função é analisar a jornada de leads e identificar padrões de comportamento " +
	"que levam à conversão. Forneça insights acionáveis e recomendações específicas."

// LLMClient produces a completion for one prompt.
type LLMClient interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Analyzer turns a reconstructed journey into a written analysis.
type Analyzer struct {
	llm    LLMClient
	logger *logging.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(llm LLMClient, logger *logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Analyzer{llm: llm, logger: logger}
}

// AnalyzeJourney asks the LLM for behavioral insights on the journey.
func (a *Analyzer) AnalyzeJourney(ctx context.Context, data *journey.Data) (string, error) {
	if data == nil {
		return "", fmt.Errorf("insights: journey data is required")
	}
	analysis, err := a.llm.Generate(ctx, systemInstruction, buildPrompt(data))
	if err != nil {
		return "", fmt.Errorf("insights: analyze journey: %w", err)
	}
	return analysis, nil
}

func buildPrompt(data *journey.Data) string {
	var b strings.Builder
	m := data.Metrics

	b.WriteString("Analise a jornada do seguinte lead e forneça insights detalhados:\n\n")

	b.WriteString("## Informações do Lead\n\n")
	fmt.Fprintf(&b, "- **Nome**: %s\n", data.LeadName)
	fmt.Fprintf(&b, "- **E-mail**: %s\n", data.Email)
	if c := data.Mautic.Contact; c != nil {
		fmt.Fprintf(&b, "- **Pontos**: %d\n", c.Points)
		fmt.Fprintf(&b, "- **Data de Criação**: %s\n", c.DateAdded.Format("02/01/2006"))
		if c.LastActive != nil {
			fmt.Fprintf(&b, "- **Última Atividade**: %s\n", c.LastActive.Format("02/01/2006"))
		}
	}
	fmt.Fprintf(&b, "- **Dias na Base**: %d\n\n", m.DaysInBase)

	b.WriteString("## Status de Conversão\n\n")
	fmt.Fprintf(&b, "- **Status**: %s\n", statusLabel(m.ConversionStatus))
	if m.DealValue != nil {
		fmt.Fprintf(&b, "- **Valor do Deal**: R$ %.2f\n", *m.DealValue)
	}
	if m.DaysToConversion != nil {
		fmt.Fprintf(&b, "- **Dias até Conversão**: %d\n", *m.DaysToConversion)
	}
	b.WriteString("\n## Métricas de Engajamento\n\n")
	fmt.Fprintf(&b, "- **Total de Atividades**: %d\n", m.TotalActivities)
	fmt.Fprintf(&b, "- **E-mails Enviados**: %d\n", m.EmailsSent)
	fmt.Fprintf(&b, "- **E-mails Abertos**: %d\n", m.EmailsOpened)
	if m.EmailsSent > 0 {
		fmt.Fprintf(&b, "- **Taxa de Abertura**: %.1f%%\n", float64(m.EmailsOpened)/float64(m.EmailsSent)*100)
	}
	fmt.Fprintf(&b, "- **Páginas Visitadas**: %d\n", m.PagesVisited)
	fmt.Fprintf(&b, "- **Formulários Preenchidos**: %d\n", m.FormsSubmitted)
	fmt.Fprintf(&b, "- **Downloads Realizados**: %d\n", m.DownloadsCompleted)
	fmt.Fprintf(&b, "- **Vídeos Assistidos**: %d\n", m.VideosWatched)
	fmt.Fprintf(&b, "- **Score de Engajamento**: %d/100\n\n", data.Behavior.EngagementScore)

	b.WriteString("## Campanhas e Segmentos\n\n")
	fmt.Fprintf(&b, "- **Campanhas Participadas**: %s\n", joinOr(campaignNames(data), "Nenhuma"))
	fmt.Fprintf(&b, "- **Segmentos**: %s\n\n", joinOr(segmentNames(data), "Nenhum"))

	b.WriteString("## Atividades Recentes (Últimas 10)\n\n")
	events := data.Timeline.Events
	if len(events) > 10 {
		events = events[len(events)-10:]
	}
	for i, ev := range events {
		fmt.Fprintf(&b, "%d. **%s** - %s\n", i+1, ev.Title, ev.Date.Format("02/01/2006"))
	}

	b.WriteString("\n**Tarefa**: Analise esses dados e forneça:\n\n")
	b.WriteString("1. **Resumo do Comportamento**: Descreva o padrão de comportamento do lead\n")
	b.WriteString("2. **Pontos Fortes**: Identifique os aspectos positivos da jornada\n")
	b.WriteString("3. **Pontos de Atenção**: Identifique possíveis problemas ou oportunidades perdidas\n")
	if m.ConversionStatus == journey.StatusWon {
		b.WriteString("4. **Padrões Identificados**: Este lead CONVERTEU. Identifique os padrões que levaram à conversão\n")
	} else {
		b.WriteString("4. **Padrões Identificados**: Este lead NÃO converteu ainda. Identifique possíveis razões e o que pode ser feito para aumentar as chances de conversão\n")
	}
	b.WriteString("5. **Recomendações**: Forneça 3-5 recomendações acionáveis específicas\n\n")
	b.WriteString("Seja específico, use dados concretos e forneça insights acionáveis. " +
		"Responda em português do Brasil, usando markdown para formatação.\n")

	return b.String()
}

func statusLabel(status journey.ConversionStatus) string {
	switch status {
	case journey.StatusWon:
		return "Convertido (Ganho)"
	case journey.StatusLost:
		return "Perdido"
	case journey.StatusNegotiating:
		return "Em Negociação"
	default:
		return "Lead (Não convertido)"
	}
}

func campaignNames(data *journey.Data) []string {
	names := make([]string, 0, len(data.Mautic.Campaigns))
	for _, c := range data.Mautic.Campaigns {
		names = append(names, c.Name)
	}
	return names
}

func segmentNames(data *journey.Data) []string {
	names := make([]string, 0, len(data.Mautic.Segments))
	for _, s := range data.Mautic.Segments {
		names = append(names, s.Name)
	}
	return names
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}
