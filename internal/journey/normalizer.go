package journey

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grupoblue/lead-insights/internal/mautic"
)

// Normalize maps one raw activity record into a canonical timeline event.
// Pure function: the same activity and lookup tables always yield the same
// event. Unknown event kinds fall through to page_visit with the raw event
// string as title; that is a deliberate catch-all for upstream additions.
func Normalize(activity mautic.ActivityEvent, lookups mautic.Lookups) TimelineEvent {
	ev := TimelineEvent{
		ID:   eventID(activity),
		Date: activity.Timestamp,
		Metadata: map[string]any{
			"sourceEvent": activity.Event,
		},
	}
	d := activity.Details

	switch kind := activity.Event; {
	case kind == "email.sent":
		ev.Type = EventEmailSent
		ev.Title = resolveEmailTitle(d, lookups, "E-mail Enviado")
	case kind == "email.read":
		ev.Type = EventEmailOpened
		ev.Title = resolveEmailTitle(d, lookups, "E-mail Aberto")
	case kind == "email.clicked":
		ev.Type = EventEmailClicked
		ev.Title = resolveEmailTitle(d, lookups, "Link Clicado")
		ev.Description = detailString(d, "url", "redirect_url")
	case kind == "page.hit":
		ev.Type = EventPageVisit
		hit := detailMap(d, "hit")
		ev.Title = resolveTitle(lookups.Pages, detailInt(hit, "page_id"),
			detailString(hit, "page_title", "title"), "Página", "Página Visitada")
		if url := pageHitURL(hit); url != "" {
			ev.Description = url
		}
	case kind == "form.submitted":
		ev.Type = EventFormSubmit
		form := detailMap(d, "form")
		ev.Title = resolveTitle(nil, 0,
			firstNonEmpty(detailString(form, "name"), detailString(d, "form_name")),
			"Formulário", "Formulário Enviado")
	case kind == "asset.download":
		ev.Type = EventDownload
		asset := detailMap(d, "asset")
		ev.Title = resolveTitle(nil, 0,
			firstNonEmpty(detailString(asset, "title", "name"), detailString(d, "asset_name")),
			"Material", "Material Baixado")
	case kind == "page.videohit":
		ev.Type = EventVideoWatch
		ev.Title = resolveTitle(nil, 0,
			detailString(d, "video_title", "title", "url"), "Vídeo", "Vídeo Assistido")
	case kind == "point.gained":
		ev.Type = EventPointGained
		ev.Title = "Pontos Ganhos"
		if delta := pointDelta(activity); delta != 0 {
			ev.Description = fmt.Sprintf("%+d pontos", delta)
			ev.Metadata["delta"] = delta
		}
	case kind == "lead.source.identified":
		ev.Type = EventPageVisit
		ev.Title = "Origem Identificada"
	case strings.Contains(kind, "segment"):
		ev.Type = EventSegmentJoin
		ev.Title = resolveTitle(lookups.Segments,
			firstNonZero(detailInt(d, "segment_id"), detailInt(d, "list_id")),
			detailString(d, "segment_name", "name"), "Segmento", "Adicionado ao Segmento")
	case kind == "lead.imported":
		ev.Type = EventPageVisit
		ev.Title = "Lead Importado"
	case strings.Contains(kind, "campaign"):
		ev.Type = EventCampaignJoin
		ev.Title = resolveTitle(lookups.Campaigns, detailInt(d, "campaign_id"),
			detailString(d, "campaign_name", "name"), "Campanha", "Campanha")
	case kind == "stage.changed":
		ev.Type = EventPointGained
		ev.Title = resolveTitle(lookups.Stages, detailInt(d, "stage_id"),
			detailString(d, "stage_name", "stage"), "Estágio", "Estágio Alterado")
		ev.Description = "O lead mudou de estágio no funil"
	case kind == "lead.donotcontact":
		ev.Type = EventUnsubscribe
		ev.Title = "Descadastrado"
		ev.Description = detailString(d, "reason", "comments")
	case kind == "lead.utmtagsadded":
		ev.Type = EventPageVisit
		ev.Title = "UTM Tags Adicionadas"
	default:
		// catch-all for event kinds this list does not know yet
		ev.Type = EventPageVisit
		ev.Title = firstNonEmpty(activity.EventType, activity.Event, "Atividade")
	}
	return ev
}

func eventID(activity mautic.ActivityEvent) string {
	return fmt.Sprintf("%s-%d", activity.Event, activity.Timestamp.UnixMilli())
}

// resolveEmailTitle finds a name for the email referenced by the event:
// lookup table, then embedded name/subject, then "E-mail #id", then label.
func resolveEmailTitle(d map[string]any, lookups mautic.Lookups, label string) string {
	id := firstNonZero(detailInt(d, "email_id"), detailInt(detailMap(d, "email"), "id"))
	embedded := firstNonEmpty(
		detailString(d, "email_name", "subject"),
		detailString(detailMap(d, "email"), "name", "subject"),
	)
	return resolveTitle(lookups.Emails, id, embedded, "E-mail", label)
}

// resolveTitle applies the four-step title policy: lookup table by id,
// embedded name field, "<Kind> #<id>" placeholder, generic label. A failed
// lookup never blocks rendering.
func resolveTitle(table map[int]string, id int, embedded, kind, label string) string {
	if id != 0 {
		if name, ok := table[id]; ok && name != "" {
			return name
		}
	}
	if embedded != "" {
		return embedded
	}
	if id != 0 {
		return fmt.Sprintf("%s #%d", kind, id)
	}
	return label
}

func pageHitURL(hit map[string]any) string {
	if url := detailString(hit, "url"); url != "" {
		return url
	}
	return detailString(detailMap(hit, "query"), "page_url")
}

func pointDelta(activity mautic.ActivityEvent) int {
	return firstNonZero(
		detailInt(activity.Details, "delta", "points"),
		detailInt(detailMap(activity.Details, "log"), "delta"),
	)
}

// detailMap returns a nested map field, or nil when absent or mistyped.
func detailMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	nested, _ := m[key].(map[string]any)
	return nested
}

// detailString returns the first present non-empty string among keys.
func detailString(m map[string]any, keys ...string) string {
	if m == nil {
		return ""
	}
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// detailInt returns the first present numeric value among keys. JSON decoding
// yields float64; Mautic sometimes ships ids as strings, so both are handled.
func detailInt(m map[string]any, keys ...string) int {
	if m == nil {
		return 0
	}
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			if v != 0 {
				return int(v)
			}
		case int:
			if v != 0 {
				return v
			}
		case string:
			if n, err := strconv.Atoi(v); err == nil && n != 0 {
				return n
			}
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
