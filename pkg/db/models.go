package db

// Expression is the canonical form of a lexical unit with its running
// occurrence count and user flags.
type Expression struct {
	ID             int64
	Text           string
	Frequency      int
	IsExcluded     bool
	IsLearned      bool
	InFlashcardSet bool
}

// PartOfSpeech is a tag as emitted by the tokenizer backend.
type PartOfSpeech struct {
	ID         int64
	Tag        string
	IsExcluded bool
}

// Occurrence links one expression, under one tag, in one sentence, as one
// surface form.
type Occurrence struct {
	ExpressionID  int64
	PosID         int64
	SentenceID    int64
	SurfaceFormID int64
}
