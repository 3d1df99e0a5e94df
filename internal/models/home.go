package models

// Hobby is one entry of the homepage hobby strip.
type Hobby struct {
	Label   string `json:"label"`
	IconURL string `json:"iconUrl"`
}

// HomeSettings is the flat homepage document.
type HomeSettings struct {
	Headline        string   `json:"headline"`
	Tagline         string   `json:"tagline"`
	About           string   `json:"about"`
	AvatarURL       string   `json:"avatarUrl"`
	ResumeURL       string   `json:"resumeUrl"`
	Location        string   `json:"location"`
	FeaturedHobbies []Hobby  `json:"featured_hobbies"`
	NowLearning     []string `json:"now_learning"`
}
