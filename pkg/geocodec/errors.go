package geocodec

import "fmt"

type Stage string

const (
	StageBase64   Stage = "base64"
	StageInflate  Stage = "inflate"
	StageUTF8     Stage = "utf8"
	StageJSON     Stage = "json"
	StageMetadata Stage = "metadata"
	StageData     Stage = "data"
)

// DecodeError reports the stage at which a layer payload could not be decoded
type DecodeError struct {
	Stage Stage
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode layer payload at %s stage: %s", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(stage Stage, err error) error {
	return &DecodeError{Stage: stage, Err: err}
}
