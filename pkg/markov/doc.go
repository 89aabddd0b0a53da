/*
Package markov implements database-backed Markov chain models.

Models live in a SQLite database alongside each other and share one global
vocabulary. Text is split into tokens by a Tokenizer; the CharTokenizer
treats every character as a token, so a trained model produces
pseudo-words rather than rearranged real words. Training streams tokens
into prefix -> next-token frequency tables, and generation walks those
tables with frequency-weighted random choice.
*/
package markov
