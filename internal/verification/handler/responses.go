package handler

import "docverify/internal/verification"

// BatchResponse is the body of a successful batch verification.
type BatchResponse struct {
	Success bool                       `json:"success"`
	Results []verification.BatchResult `json:"results"`
	Total   int                        `json:"total"`
}

// StatsResponse reports the caller's key and its daily usage.
type StatsResponse struct {
	Name       string `json:"name"`
	Tier       string `json:"tier"`
	DailyLimit int    `json:"daily_limit"`
	UsedToday  int    `json:"used_today"`
	Remaining  int    `json:"remaining"`
}
