package throttle

import "strings"

// Fields carries the raw submission values identifiers derive from.
// Values are used as submitted; lowercasing and trimming happen during
// derivation so Check and Record agree as long as they receive identical
// raw input.
type Fields struct {
	Name     string
	Company  string
	Email    string
	FormType string
}

// Identifiers derives the throttle bucket keys for one submission. Email
// is the primary identifier; company, name+email, and form type catch
// submitters who rotate addresses.
func (f Fields) Identifiers() []string {
	ids := make([]string, 0, 4)

	email := strings.ToLower(strings.TrimSpace(f.Email))
	if email != "" {
		ids = append(ids, "email:"+email)
	}

	if company := strings.ToLower(strings.TrimSpace(f.Company)); company != "" {
		ids = append(ids, "company:"+company)
	}

	if name := strings.ToLower(strings.TrimSpace(f.Name)); name != "" && email != "" {
		ids = append(ids, "name_email:"+name+"_"+email)
	}

	if f.FormType != "" {
		ids = append(ids, "form:"+f.FormType)
	}

	return ids
}
