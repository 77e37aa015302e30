package interpreter

// Secondary field keys, in the order they are asked about.
const (
	FieldEducation      = "education_level"
	FieldExperience     = "years_of_experience"
	FieldIndustry       = "industry_type"
	FieldCompanySize    = "company_size_preference"
	FieldCertifications = "certifications"
)

// SecondaryFields lists the optional fields in question order.
var SecondaryFields = []string{FieldEducation, FieldExperience, FieldIndustry, FieldCompanySize, FieldCertifications}

var fieldNames = map[string]string{
	FieldEducation:      "educational background",
	FieldExperience:     "years of experience",
	FieldIndustry:       "industry preference",
	FieldCompanySize:    "company size preference",
	FieldCertifications: "certifications",
}

// FieldName is the phrase used for a field in clarification questions.
func FieldName(field string) string {
	if n, ok := fieldNames[field]; ok {
		return n
	}
	return field
}

// Defaults applied to secondary fields the user did not provide.
const (
	DefaultIndustry       = "All Industries"
	DefaultCompanySize    = "50-100 FTEs"
	DefaultCertifications = "None"
	// DefaultLocation is used by the heuristic extractor when no location
	// can be split off.
	DefaultLocation = "United States"
)

var industries = []string{
	"All Industries", "Aerospace & Defense", "Biotechnology", "Construction", "Education",
	"Energy & Utilities", "Financial Services", "Government", "Healthcare",
	"Hospitality & Leisure", "Information Technology", "Media & Entertainment",
	"Manufacturing", "Non-profit", "Professional Services", "Real Estate",
	"Retail & Wholesale", "Transportation & Logistics",
}

var companySizes = []string{
	"ALL FTEs", "<25 FTEs", "25-50 FTEs", "50-100 FTEs", "100-200 FTEs",
	"200-500 FTEs", "500-1,000 FTEs", "1,000-3,000 FTEs", "3,000-7,500 FTEs",
	"7,500-15,000 FTEs", "15,000-50,000 FTEs", ">50,000 FTEs",
}

var educationLevels = []string{
	"None", "High School", "Certificate", "Associate", "Bachelor's", "Master's",
	"MBA", "JD", "MD", "PhD", "Advanced", "Doctorate", "Special Program",
}

// Options are the choices offered for the secondary fields.
type Options struct {
	Industries      []string `json:"industries"`
	CompanySizes    []string `json:"company_sizes"`
	EducationLevels []string `json:"education_levels"`
}

// Catalog returns copies of the option lists.
func Catalog() Options {
	return Options{
		Industries:      append([]string(nil), industries...),
		CompanySizes:    append([]string(nil), companySizes...),
		EducationLevels: append([]string(nil), educationLevels...),
	}
}
