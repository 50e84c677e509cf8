package models

import "time"

// RemoteFile describes one logging file as reported by the remote drive.
// Identity is the drive-assigned ID; ModTime is the version marker used to
// decide whether a cached copy is stale.
type RemoteFile struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Folder  string    `json:"folder"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modifiedTime"`
}
