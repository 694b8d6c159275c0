package iam

import "time"

// Policy is a customer-managed policy as returned by enumeration.
type Policy struct {
	Name             string
	PolicyID         string
	ARN              string
	Path             string
	DefaultVersionID string
	AttachmentCount  int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AttachedPolicy is a policy attached to the current user.
type AttachedPolicy struct {
	Name string
	ARN  string
}
