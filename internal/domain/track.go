package domain

type Track struct {
	ID       string `json:"id" yaml:"id" validate:"required"`
	Title    string `json:"title" yaml:"title" validate:"required"`
	Artist   string `json:"artist" yaml:"artist" validate:"required"`
	Duration string `json:"duration" yaml:"duration" validate:"required"`
	BPM      int    `json:"bpm" yaml:"bpm" validate:"gte=20,lte=300"`
	Key      string `json:"key" yaml:"key" validate:"required"`
	Genre    string `json:"genre" yaml:"genre" validate:"required"`
}
