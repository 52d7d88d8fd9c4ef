package models

import "time"

// Request types

// Pointers distinguish a missing id from id 0.
type CastVoteRequest struct {
	ElectionID  *uint64 `json:"electionId"`
	CandidateID *uint64 `json:"candidateId"`
}

type RegisterVoterRequest struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	RollNumber string `json:"rollNumber"`
	Section    string `json:"section"`
	Year       int    `json:"year"`
	Branch     string `json:"branch"`
	FullName   string `json:"fullName"`
}

type CreateElectionRequest struct {
	Title          string   `json:"title"`
	Candidates     []string `json:"candidates"`
	DurationHours  float64  `json:"durationHours"`
	TargetYears    []int    `json:"targetYears"`
	TargetSections []string `json:"targetSections"`
}

// Response types

type CastVoteResponse struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transactionHash"`
}

type ListElectionsResponse struct {
	AllElections []ElectionView `json:"allElections"`
}

type CreateElectionResponse struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transactionHash"`
	ElectionID      uint64 `json:"electionId"`
	Message         string `json:"message"`
}

type RegisterVoterResponse struct {
	Success bool   `json:"success"`
	UID     string `json:"uid"`
}

// election_id -> transaction hash
type VoteHistoryResponse struct {
	VotesCast map[string]string `json:"votes_cast"`
	Profile   VoterProfile      `json:"profile"`
}

type PendingClaimsResponse struct {
	Claims []PendingClaim `json:"claims"`
}

// Views

type ElectionView struct {
	ID             uint64          `json:"id"`
	Title          string          `json:"title"`
	StartTime      int64           `json:"startTime"`
	EndTime        int64           `json:"endTime"`
	TargetYears    []int           `json:"targetYears"`
	TargetSections []string        `json:"targetSections"`
	Status         string          `json:"status"` // Upcoming, Active or Ended
	Candidates     []CandidateView `json:"candidates"`
	TotalVotes     uint64          `json:"totalVotes"`
}

type CandidateView struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Votes uint64 `json:"votes"`
}

type VoterProfile struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	RollNumber   string    `json:"rollNumber"`
	FullName     string    `json:"fullName"`
	Branch       string    `json:"branch"`
	AcademicYear int       `json:"academicYear"`
	Section      string    `json:"section"`
	CreatedAt    time.Time `json:"createdAt"`
}

type PendingClaim struct {
	VoterID    string    `json:"voterId"`
	ElectionID uint64    `json:"electionId"`
	ClaimedAt  time.Time `json:"claimedAt"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
