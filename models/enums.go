package models

type MovementType string

const (
	MovementTypeIn  MovementType = "IN"
	MovementTypeOut MovementType = "OUT"
)

func (t MovementType) Validate() error {
	switch t {
	case MovementTypeIn, MovementTypeOut:
		return nil
	}
	return errInput("invalid movement type")
}
