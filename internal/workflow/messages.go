package workflow

import "golang.org/x/text/language"

var danish = language.Danish

var phaseMessages = map[bool]map[Phase]string{
	true: {
		PhaseUserFetch:  "Henter brugerdata...",
		PhaseJobSave:    "Gemmer jobdetaljer...",
		PhaseGeneration: "Genererer ansøgning...",
		PhaseLetterSave: "Gemmer ansøgning...",
	},
	false: {
		PhaseUserFetch:  "Loading your profile...",
		PhaseJobSave:    "Saving job details...",
		PhaseGeneration: "Generating cover letter...",
		PhaseLetterSave: "Saving cover letter...",
	},
}

var initializingMessage = map[bool]string{
	true:  "Indlæser data...",
	false: "Loading...",
}

// isDanish matches "da", "da-DK" and friends; unparsable tags fall back to English.
func isDanish(locale string) bool {
	tag, err := language.Parse(locale)
	if err != nil {
		return false
	}
	base, _ := tag.Base()
	want, _ := danish.Base()
	return base == want
}

func (c *Controller) phaseMessage(p Phase) string {
	return phaseMessages[c.danish][p]
}
