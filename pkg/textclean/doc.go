/*
Package textclean turns raw text into a corpus suitable for training
character-level Markov models.

Clean replaces non-breaking spaces, collapses indented and blank lines into
single line breaks, strips punctuation other than periods and commas, and
trims the result. Each step is also exported for callers that need only
part of the pipeline.
*/
package textclean
