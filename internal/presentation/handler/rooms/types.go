package rooms

type memberResponse struct {
	UserName string `json:"userName"`
	Color    string `json:"color"`
}

type membersResponse struct {
	RoomID  string           `json:"roomId"`
	Members []memberResponse `json:"members"`
}

type presenceEntryResponse struct {
	UserName    string  `json:"userName"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Color       string  `json:"color"`
	LastUpdated string  `json:"lastUpdated"`
}

type presenceResponse struct {
	RoomID   string                  `json:"roomId"`
	Presence []presenceEntryResponse `json:"presence"`
}
