package schema

import "errors"

// ErrMissingIdentityKey marks a row without a link. Such rows are
// rejected before merge, never passed through with an empty key.
var ErrMissingIdentityKey = errors.New("missing identity key (link)")

// ErrDateParse marks a published value that could not be parsed.
// Whether the row is dropped or kept with a zero published instant is a
// normalizer policy decision.
var ErrDateParse = errors.New("unparseable published date")
