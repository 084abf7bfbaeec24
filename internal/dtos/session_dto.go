package dtos

// SessionRequest opens a generator session, optionally preloading a job
// (stays on step 1) or an existing letter (moves to step 2).
type SessionRequest struct {
	JobID    string `json:"job_id"`
	LetterID string `json:"letter_id"`
	Locale   string `json:"locale"`
}

// FetchRequest reloads a job or a saved letter into an open session, e.g.
// to retry a failed preload. Exactly one id is expected.
type FetchRequest struct {
	JobID    string `json:"job_id"`
	LetterID string `json:"letter_id"`
}

type LetterEditRequest struct {
	Content string `json:"content"`
}

type StepRequest struct {
	Step int `json:"step" binding:"required,oneof=1 2"`
}

type ProfileRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email" binding:"omitempty,email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	Experience string `json:"experience"`
	Education  string `json:"education"`
	Skills     string `json:"skills"`
}
