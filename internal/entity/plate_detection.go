package entity

type PlateBox struct {
	X1   int     `json:"x1"`
	Y1   int     `json:"y1"`
	X2   int     `json:"x2"`
	Y2   int     `json:"y2"`
	Conf float64 `json:"conf"`
}

// PlateStreamResult is the per-frame answer on the live detection socket.
type PlateStreamResult struct {
	Message string     `json:"message"`
	Boxes   []PlateBox `json:"boxes,omitempty"`
	Error   string     `json:"error,omitempty"`
}
