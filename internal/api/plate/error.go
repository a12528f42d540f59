package plate

import "errors"

var (
	ErrCapabilityUnavailable = errors.New("inference capabilities are not available")
	ErrMissingImageFile      = errors.New("image file is missing from the request")
	ErrInvalidImageFile      = errors.New("uploaded file is not a usable image")
	ErrImageDecode           = errors.New("image data could not be decoded")
	ErrPlateNotFound         = errors.New("no plate region detected")
	ErrOCRFailed             = errors.New("plate text could not be read")
	ErrConsultationNotFound  = errors.New("consultation record not found")
	ErrReportFieldsRequired  = errors.New("plate and description are required")
)
