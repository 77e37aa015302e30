package types

// JobPosting is one listing scraped from the job board. It lives only for the
// duration of a single request.
type JobPosting struct {
	Title          string `json:"title"`
	Company        string `json:"company,omitempty"`
	Location       string `json:"location,omitempty"`
	SalaryText     string `json:"salary"`
	ExperienceText string `json:"experience"`
	URL            string `json:"url,omitempty"`
	PostedDate     string `json:"posted_date,omitempty"`
	Description    string `json:"description,omitempty"`
	JobKey         string `json:"job_key,omitempty"`
}

// NotSpecified marks a field the source did not provide.
const NotSpecified = "Not specified"

// SalaryNotSpecified is the salary text used when none could be extracted.
const SalaryNotSpecified = NotSpecified

// SalaryPhraseSeparator joins several salary phrases found in one posting.
const SalaryPhraseSeparator = " / "

// HasSalary reports whether the posting carries usable salary text.
func (p JobPosting) HasSalary() bool {
	return p.SalaryText != "" && p.SalaryText != SalaryNotSpecified
}
