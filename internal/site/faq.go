package site

// SearchFAQs returns the FAQ groups with only the questions whose question or
// answer contains term. Groups left empty are dropped. A blank term returns
// every group.
func (c *Content) SearchFAQs(term string) []FAQGroup {
	term = normalizeTerm(term)
	if term == "" {
		return c.FAQs
	}

	var out []FAQGroup
	for _, g := range c.FAQs {
		var hits []FAQ
		for _, q := range g.Questions {
			if contains(q.Question, term) || contains(q.Answer, term) {
				hits = append(hits, q)
			}
		}
		if len(hits) > 0 {
			out = append(out, FAQGroup{Category: g.Category, Questions: hits})
		}
	}
	return out
}
