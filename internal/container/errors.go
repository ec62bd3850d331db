package container

import "errors"

var (
	ErrInvalidBinding    = errors.New("container: invalid binding")
	ErrServiceNotFound   = errors.New("container: service not found")
	ErrCyclicDependency  = errors.New("container: cyclic dependency")
	ErrContainerNotFound = errors.New("container: container not found")
	ErrUnexpectedType    = errors.New("container: unexpected service type")
)
