package notify

import (
	"fmt"
	"strings"

	"github.com/hkf/crm/internal/models"
)

// DecisionMessage builds the bilingual (Hebrew first, then English) subject and body
// sent to a person when their application is decided.
func DecisionMessage(name, programName string, d models.Decision, note string) (subject, body string) {
	if name == "" {
		name = "מועמד/ת"
	}
	var b strings.Builder
	switch d {
	case models.DecisionAccept:
		subject = "התקבלת! | You have been accepted"
		fmt.Fprintf(&b, "שלום %s,\n\nשמחים לבשר שהתקבלת", name)
		if programName != "" {
			fmt.Fprintf(&b, " לתוכנית %s", programName)
		}
		b.WriteString(".\n")
	default:
		subject = "עדכון לגבי המועמדות שלך | Update on your application"
		fmt.Fprintf(&b, "שלום %s,\n\nתודה על ההתעניינות", name)
		if programName != "" {
			fmt.Fprintf(&b, " בתוכנית %s", programName)
		}
		b.WriteString(". לצערנו לא נוכל להציע לך מקום הפעם.\n")
	}
	if note != "" {
		fmt.Fprintf(&b, "\n%s\n", note)
	}
	b.WriteString("\n---\n\n")
	switch d {
	case models.DecisionAccept:
		fmt.Fprintf(&b, "Hello %s,\n\nWe are happy to let you know you have been accepted", name)
		if programName != "" {
			fmt.Fprintf(&b, " to %s", programName)
		}
		b.WriteString(".\n")
	default:
		fmt.Fprintf(&b, "Hello %s,\n\nThank you for applying", name)
		if programName != "" {
			fmt.Fprintf(&b, " to %s", programName)
		}
		b.WriteString(". Unfortunately we cannot offer you a place this time.\n")
	}
	return subject, b.String()
}
