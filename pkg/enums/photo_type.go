package enums

import "fmt"

// PhotoType distinguishes exit and return captures.
type PhotoType string

const (
	PhotoTypeExit   PhotoType = "exit"
	PhotoTypeReturn PhotoType = "return"
)

var validPhotoTypes = []PhotoType{PhotoTypeExit, PhotoTypeReturn}

func (p PhotoType) IsValid() bool {
	for _, candidate := range validPhotoTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePhotoType converts raw input into PhotoType.
func ParsePhotoType(value string) (PhotoType, error) {
	for _, candidate := range validPhotoTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid photo type %q", value)
}
