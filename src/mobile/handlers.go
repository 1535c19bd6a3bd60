package mobile

/*
Callback interfaces that the host mobile application implements to receive
notifications from the node.
*/

//------------------------------------------------------------------------------

// CommitHandler is notified with the JSON form of every entry committed from a
// network publication.
type CommitHandler interface {
	OnCommit(entry string)
}

// ExceptionHandler is notified of errors raised while operating the node.
type ExceptionHandler interface {
	OnException(string)
}
