package portal

import (
	"context"
	"fmt"
)

// Employers returns the full employer directory.
func (c *Client) Employers(ctx context.Context) ([]Employer, error) {
	var raw []rawEmployer
	if err := c.get(ctx, "/employers", &raw); err != nil {
		return nil, fmt.Errorf("fetch employers: %w", err)
	}
	out := make([]Employer, 0, len(raw))
	for _, r := range raw {
		out = append(out, normalizeEmployer(r))
	}
	return out, nil
}

// Candidates returns the full candidate directory.
func (c *Client) Candidates(ctx context.Context) ([]Candidate, error) {
	var raw []rawCandidate
	if err := c.get(ctx, "/candidates", &raw); err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	out := make([]Candidate, 0, len(raw))
	for _, r := range raw {
		out = append(out, normalizeCandidate(r))
	}
	return out, nil
}

// EmployerByID fetches a single employer. Returns ErrNotFound on 404.
func (c *Client) EmployerByID(ctx context.Context, id string) (Employer, error) {
	var raw rawEmployer
	if err := c.get(ctx, "/employers/"+id, &raw); err != nil {
		return Employer{}, fmt.Errorf("fetch employer %s: %w", id, err)
	}
	return normalizeEmployer(raw), nil
}

// JobListingByID fetches a single job listing. Returns ErrNotFound on 404.
func (c *Client) JobListingByID(ctx context.Context, id string) (JobListing, error) {
	var raw rawJobListing
	if err := c.get(ctx, "/joblistings/"+id, &raw); err != nil {
		return JobListing{}, fmt.Errorf("fetch job listing %s: %w", id, err)
	}
	return normalizeJobListing(raw), nil
}
