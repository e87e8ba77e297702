package service

import "errors"

// ErrForgetRequestEmpty is returned when a Forget request sets none of
// All, PageIDs, or Before.
var ErrForgetRequestEmpty = errors.New("memoria service: forget request specifies nothing to remove")
