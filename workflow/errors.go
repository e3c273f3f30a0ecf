package workflow

import "errors"

// ErrNcfExhausted blocks invoicing: no fiscal numbers remain for the document
// type. The operator must resolve it before retrying, there is no automatic
// recovery.
var ErrNcfExhausted = errors.New("no NCF numbers available")

// errLineAlreadyReconciled rolls a reconcile group back when another worker
// took one of its lines between read and write. The invoice reappears in the
// next sweep.
var errLineAlreadyReconciled = errors.New("line already reconciled")
