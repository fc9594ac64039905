package session

// MergeSection folds incoming into existing. Decisions and notes are
// accumulated (existing order first, new items appended, exact-string
// dedup); every other field takes incoming's value when it is set.
func MergeSection(existing, incoming Section) Section {
	out := existing.clone()

	if incoming.Timestamp != "" {
		out.Timestamp = incoming.Timestamp
	}
	if incoming.PrimaryAgent != "" {
		out.PrimaryAgent = incoming.PrimaryAgent
	}
	if incoming.RecommendedActAgent != "" {
		out.RecommendedActAgent = incoming.RecommendedActAgent
	}
	if incoming.RecommendedActAgentConfidence != nil {
		c := *incoming.RecommendedActAgentConfidence
		out.RecommendedActAgentConfidence = &c
	}
	if len(incoming.Specialists) > 0 {
		out.Specialists = cloneStrings(incoming.Specialists)
	}
	if incoming.Status != "" {
		out.Status = incoming.Status
	}
	if incoming.Task != "" {
		out.Task = incoming.Task
	}

	out.Decisions = union(out.Decisions, incoming.Decisions)
	out.Notes = union(out.Notes, incoming.Notes)
	return out
}

// union returns base followed by the items of extra not already present.
func union(base, extra []string) []string {
	out := cloneStrings(base)
	for _, item := range extra {
		out = appendUnique(out, item)
	}
	return out
}

// normalizeSection dedups the lists of a section that is about to be
// appended, so a fresh section obeys the same set semantics as a merged one.
func normalizeSection(s Section) Section {
	out := s.clone()
	out.Decisions = union(nil, s.Decisions)
	out.Notes = union(nil, s.Notes)
	return out
}
