package emu

// keyPos locates a symbolic key in the 11-row, 8-column matrix.
type keyPos struct {
	row, col uint8
}

// keyMatrix maps stable symbolic key names to the MSX keyboard row/column
// layout. Only the subset commonly exercised by software is included; the
// full 90-entry map a host binds against is a host-layer concern.
var keyMatrix = map[string]keyPos{
	"0": {0, 0}, "1": {0, 1}, "2": {0, 2}, "3": {0, 3}, "4": {0, 4},
	"5": {0, 5}, "6": {0, 6}, "7": {0, 7},
	"8": {1, 0}, "9": {1, 1},
	"A": {1, 6}, "B": {1, 7}, "C": {2, 0}, "D": {2, 1}, "E": {2, 2},
	"F": {2, 3}, "G": {2, 4}, "H": {2, 5}, "I": {2, 6}, "J": {2, 7},
	"K": {3, 0}, "L": {3, 1}, "M": {3, 2}, "N": {3, 3}, "O": {3, 4},
	"P": {3, 5}, "Q": {3, 6}, "R": {3, 7},
	"S": {4, 0}, "T": {4, 1}, "U": {4, 2}, "V": {4, 3}, "W": {4, 4},
	"X": {4, 5}, "Y": {4, 6}, "Z": {4, 7},
	"Space":      {8, 0}, // row 8 is the space row per spec §4.1's joystick-combine note
	"Enter":      {7, 7},
	"ArrowUp":    {10, 5},
	"ArrowDown":  {10, 6},
	"ArrowLeft":  {10, 4},
	"ArrowRight": {10, 7},
	"ShiftLeft":  {6, 0},
	"CtrlLeft":   {6, 1},
	"Graph":      {6, 2},
	"CapsLock":   {6, 3},
	"Code":       {6, 4},
	"F1":         {6, 5},
	"F2":         {6, 6},
	"F3":         {6, 7},
	"Escape":     {7, 2},
	"Tab":        {7, 3},
	"Backspace":  {8, 5},
}

// Keyboard is the active-low row*column key-state matrix. Bit n of row r
// is 0 while the key at (r, n) is held.
type Keyboard struct {
	rows [11]uint8
}

func NewKeyboard() *Keyboard {
	k := &Keyboard{}
	for i := range k.rows {
		k.rows[i] = 0xFF
	}
	return k
}

func (k *Keyboard) KeyDown(name string) {
	if pos, ok := keyMatrix[name]; ok {
		k.rows[pos.row] &^= 1 << pos.col
	}
}

func (k *Keyboard) KeyUp(name string) {
	if pos, ok := keyMatrix[name]; ok {
		k.rows[pos.row] |= 1 << pos.col
	}
}

// Row returns the raw byte for the given row select value (0-10); other
// values return 0xFF (no key asserted), matching unmapped-row reads.
func (k *Keyboard) Row(row uint8) uint8 {
	if int(row) >= len(k.rows) {
		return 0xFF
	}
	return k.rows[row]
}
