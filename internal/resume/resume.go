// Package resume pulls contact details and interview hints out of plain resume text.
package resume

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	phoneRegex = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	nameRegex  = regexp.MustCompile(`(?m)^([A-Z][a-z]+ [A-Z][a-z]+)`)
	yearsRegex = regexp.MustCompile(`\d{2,3}\+?\s*(years?|yrs?)`)
)

// MaxPromptChars caps how much resume text is sent to the question generator.
const MaxPromptChars = 1500

var technologies = []string{
	"react", "node.js", "javascript", "typescript", "express", "mongodb", "postgresql",
	"sql", "python", "java", "aws", "docker", "kubernetes", "redis", "graphql",
	"rest api", "microservices", "redux", "next.js", "vue", "angular", "mysql",
	"git", "jenkins", "ci/cd", "jest", "cypress", "webpack", "babel",
}

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ExtractContact returns the first name, email and phone found in text.
func ExtractContact(text string) Contact {
	c := Contact{
		Email: emailRegex.FindString(text),
		Phone: strings.TrimSpace(phoneRegex.FindString(text)),
	}
	if m := nameRegex.FindStringSubmatch(text); len(m) > 1 {
		c.Name = m[1]
	}
	return c
}

// MissingFields lists the contact fields that are still blank.
func MissingFields(c Contact) []string {
	missing := []string{}
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(c.Phone) == "" {
		missing = append(missing, "phone")
	}
	return missing
}

// Technologies returns the known technologies mentioned in text, in a fixed order.
func Technologies(text string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	for _, tech := range technologies {
		if strings.Contains(lower, tech) {
			found = append(found, tech)
		}
	}
	return found
}

func ExperienceLevel(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "senior"), strings.Contains(lower, "lead"), strings.Contains(lower, "architect"):
		return "Senior (5+ years)"
	case strings.Contains(lower, "mid"), strings.Contains(lower, "intermediate"), yearsRegex.MatchString(lower):
		return "Mid-level (2-5 years)"
	default:
		return "Junior (0-2 years)"
	}
}

// Truncate shortens text to at most n runes.
func Truncate(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n])
}
