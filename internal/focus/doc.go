// Package focus computes the per-category diff_score ranking (§4.7) from a
// completed ResultTree: which tests cost the submission the most points,
// ordered so feedback can lead with the highest-impact failure first.
package focus
