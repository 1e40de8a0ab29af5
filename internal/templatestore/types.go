package templatestore

// Entry describes a template file in the store, shaped for bubbles' list model.
type Entry struct {
	Name       string
	Path       string
	Technology string
}

func (e Entry) Title() string { return e.Name }

func (e Entry) Description() string {
	if e.Technology == "" {
		return " "
	}
	return e.Technology
}

func (e Entry) FilterValue() string { return e.Name + " " + e.Technology }
