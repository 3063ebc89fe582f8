package types

// Diary is the journal entry of one day. The page uses the date as the
// identifier, so there is at most one entry per day.
type Diary struct {
	ID      string   `json:"id"`
	Date    string   `json:"date"`
	Content string   `json:"content"`
	Mood    string   `json:"mood,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

func (d *Diary) RecordID() string   { return d.ID }
func (d *Diary) Collection() string { return CollectionDiaries }

func (d *Diary) Validate() error {
	if err := requireField("id", d.ID); err != nil {
		return err
	}
	if err := validDate("date", d.Date, false); err != nil {
		return err
	}
	return requireField("content", d.Content)
}
