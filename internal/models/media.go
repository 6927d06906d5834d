package models

import "time"

// MediaAsset is a file held by the image CDN.
type MediaAsset struct {
	ID           string    `json:"id"` // CDN file ID
	Name         string    `json:"name"`
	Folder       string    `json:"folder"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	Size         int64     `json:"size"`
	Checksum     string    `json:"checksum,omitempty"` // base58 CRC64-NVME of the uploaded bytes
	CreatedAt    time.Time `json:"created_at"`
}
