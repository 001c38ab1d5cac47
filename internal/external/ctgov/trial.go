package ctgov

import (
	"strings"
	"time"
)

// NotAvailable marks a field the registry record did not carry
const NotAvailable = "N/A"

// Trial is the subset of a registry record the catalyst pipeline needs
type Trial struct {
	NCTID          string    `json:"nct_id"`
	Title          string    `json:"title"`
	Sponsor        string    `json:"sponsor"`
	CompletionDate time.Time `json:"completion_date"` // zero when absent or unparsable
	CompletionRaw  string    `json:"completion_raw,omitempty"`
	Phases         []string  `json:"phases"`
	Status         string    `json:"status"`
}

// Phase joins the phases, e.g. "PHASE2, PHASE3"
func (t Trial) Phase() string {
	if len(t.Phases) == 0 {
		return NotAvailable
	}
	return strings.Join(t.Phases, ", ")
}

// HasCompletionDate reports whether the trial has a usable event date
func (t Trial) HasCompletionDate() bool {
	return !t.CompletionDate.IsZero()
}

// ParseDate accepts the registry's "2006-01-02" and month-precision "2006-01" forms.
// Month precision resolves to the first of the month.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// === wire format (API v2 /studies) ===

type studiesResponse struct {
	Studies       []studyRecord `json:"studies"`
	NextPageToken string        `json:"nextPageToken"`
}

type studyRecord struct {
	ProtocolSection struct {
		IdentificationModule struct {
			NCTID         string `json:"nctId"`
			OfficialTitle string `json:"officialTitle"`
			BriefTitle    string `json:"briefTitle"`
		} `json:"identificationModule"`
		SponsorCollaboratorsModule struct {
			LeadSponsor struct {
				Name string `json:"name"`
			} `json:"leadSponsor"`
		} `json:"sponsorCollaboratorsModule"`
		StatusModule struct {
			OverallStatus               string     `json:"overallStatus"`
			PrimaryCompletionDateStruct dateStruct `json:"primaryCompletionDateStruct"`
			CompletionDateStruct        dateStruct `json:"completionDateStruct"`
		} `json:"statusModule"`
		DesignModule struct {
			Phases []string `json:"phases"`
		} `json:"designModule"`
	} `json:"protocolSection"`
}

type dateStruct struct {
	Date string `json:"date"`
	Type string `json:"type"`
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

// toTrial flattens a record; primary completion wins over study completion
func (r studyRecord) toTrial() Trial {
	p := r.ProtocolSection

	title := p.IdentificationModule.OfficialTitle
	if title == "" {
		title = p.IdentificationModule.BriefTitle
	}

	raw := p.StatusModule.PrimaryCompletionDateStruct.Date
	if raw == "" {
		raw = p.StatusModule.CompletionDateStruct.Date
	}

	t := Trial{
		NCTID:         orNA(p.IdentificationModule.NCTID),
		Title:         orNA(title),
		Sponsor:       orNA(strings.TrimSpace(p.SponsorCollaboratorsModule.LeadSponsor.Name)),
		CompletionRaw: raw,
		Phases:        p.DesignModule.Phases,
		Status:        orNA(p.StatusModule.OverallStatus),
	}
	if d, ok := ParseDate(raw); ok {
		t.CompletionDate = d
	}
	return t
}
