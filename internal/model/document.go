package model

type Document struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	SourceKey string `json:"source_key,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	Size      int64  `json:"size"`
	Ctime     int64  `json:"ctime"`
	Mtime     int64  `json:"mtime"`
}
