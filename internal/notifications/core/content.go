package core

import (
	"time"

	"outagealert/internal/i18n"
	"outagealert/internal/types"
)

// LocalTime is the zone outage times are presented in (Asia/Colombo).
var LocalTime = time.FixedZone("+0530", 5*60*60+30*60)

const timeLayout = "2006-01-02 15:04"

// OutageView is an outage with every field localized and formatted for
// display. Channels with rich templates render from it.
type OutageView struct {
	Locale   string
	Type     string
	Area     string
	Start    string
	End      string
	Reason   string
	Provider string
	Lead     string
}

// Renderer produces localized notification content.
type Renderer struct {
	catalogue *i18n.Catalogue
	loc       *time.Location
}

// NewRenderer creates a Renderer. A nil location uses LocalTime.
func NewRenderer(catalogue *i18n.Catalogue, loc *time.Location) *Renderer {
	if loc == nil {
		loc = LocalTime
	}
	return &Renderer{catalogue: catalogue, loc: loc}
}

// Catalogue returns the message catalogue the renderer uses.
func (r *Renderer) Catalogue() *i18n.Catalogue { return r.catalogue }

// View localizes outage for language. Lead time is measured from now.
func (r *Renderer) View(outage *types.Outage, language string, now time.Time) OutageView {
	locale := r.catalogue.Locale(language)
	v := OutageView{
		Locale:   locale,
		Type:     r.catalogue.GetMessage("type."+string(outage.Type), locale),
		Area:     r.catalogue.GetMessage("area.unknown", locale),
		Start:    outage.StartTime.In(r.loc).Format(timeLayout),
		End:      outage.EstimatedEndTime.In(r.loc).Format(timeLayout),
		Reason:   outage.Reason,
		Provider: outage.ProviderName,
		Lead:     r.duration(outage.StartTime.Sub(now), locale),
	}
	if a := outage.AffectedArea; a != nil {
		switch {
		case a.Name != "":
			v.Area = a.Name
		case a.District != "":
			v.Area = a.District
		}
	}
	if outage.ActualEndTime != nil {
		v.End = outage.ActualEndTime.In(r.loc).Format(timeLayout)
	}
	if v.Reason == "" {
		v.Reason = r.catalogue.GetMessage("reason.none", locale)
	}
	return v
}

// Render builds the subject and plain-text body of a kind notification.
// The returned message has no NotificationID yet.
func (r *Renderer) Render(outage *types.Outage, kind types.EventKind, language string, now time.Time) Message {
	v := r.View(outage, language, now)

	var text string
	if kind == types.EventAdvance {
		text = r.catalogue.GetMessage("body.ADVANCE", v.Locale, v.Type, v.Area, v.Lead, v.Start)
	} else {
		text = r.catalogue.GetMessage("body."+string(kind), v.Locale, v.Type, v.Area, v.Start, v.End, v.Reason)
	}

	return Message{
		Kind:     kind,
		Language: v.Locale,
		Subject:  r.catalogue.GetMessage("subject."+string(kind), v.Locale, v.Type, v.Area),
		Text:     text,
		Outage:   outage,
	}
}

func (r *Renderer) duration(d time.Duration, locale string) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Minute) / time.Minute)
	if total >= 60 {
		return r.catalogue.GetMessage("duration.hm", locale, total/60, total%60)
	}
	return r.catalogue.GetMessage("duration.m", locale, total)
}
