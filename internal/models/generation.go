package models

// JobInfo and UserInfo are the payload shapes sent to the Generation
// Service. Every field is always present; absent values are "".
type JobInfo struct {
	Title         string `json:"title"`
	Company       string `json:"company"`
	Description   string `json:"description"`
	ContactPerson string `json:"contactPerson"`
	URL           string `json:"url"`
}

type UserInfo struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	Experience string `json:"experience"`
	Education  string `json:"education"`
	Skills     string `json:"skills"`
}

type GenerationRequest struct {
	JobInfo  JobInfo  `json:"jobInfo"`
	UserInfo UserInfo `json:"userInfo"`
	Locale   string   `json:"locale"`
	Model    string   `json:"model,omitempty"`
}

// NewGenerationRequest snapshots a saved job and a profile into a request.
// A nil profile produces empty user fields.
func NewGenerationRequest(job *JobPosting, profile *UserProfile, locale string) GenerationRequest {
	req := GenerationRequest{
		JobInfo: JobInfo{
			Title:         job.Title,
			Company:       job.Company,
			Description:   job.Description,
			ContactPerson: job.ContactPerson,
			URL:           job.URL,
		},
		Locale: locale,
	}
	if profile != nil {
		req.UserInfo = UserInfo{
			Name:       profile.Name,
			Email:      profile.Email,
			Phone:      profile.Phone,
			Address:    profile.Address,
			Experience: profile.Experience,
			Education:  profile.Education,
			Skills:     profile.Skills,
		}
	}
	return req
}
