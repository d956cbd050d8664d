package review

import "fmt"

// Verdicts maps a status code to the text shown to the recipient.
var Verdicts = map[string]string{
	"approved":  "Работа проверена: ревьюеру всё понравилось. Ура!",
	"reviewing": "Работа взята на проверку ревьюером.",
	"rejected":  "Работа проверена: у ревьюера есть замечания.",
}

// Extract returns the item name and the status-change message for it.
func Extract(it Item) (name, text string, err error) {
	if it.Name == "" {
		return "", "", ErrMissingItemName
	}
	if !it.StatusKnown() {
		return "", "", &Error{Kind: KindUnrecognizedStatus, Detail: "no status"}
	}
	verdict, ok := Verdicts[it.Status]
	if !ok {
		return "", "", &Error{Kind: KindUnrecognizedStatus, Detail: "undocumented"}
	}
	return it.Name, fmt.Sprintf("Status changed for review \"%s\". %s", it.Name, verdict), nil
}
