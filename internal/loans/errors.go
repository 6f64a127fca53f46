package loans

import "errors"

var (
	ErrDuplicateActiveLoan        = errors.New("member already has this book on loan")
	ErrAlreadyReturned            = errors.New("loan has already been returned")
	ErrRenewalLimitReached        = errors.New("renewal limit reached")
	ErrLoanStillActive            = errors.New("loan is still active")
	ErrReturnReconciliationFailed = errors.New("could not reconcile book availability with the return")
	ErrAdminCannotBorrow          = errors.New("administrators cannot borrow books")
)
