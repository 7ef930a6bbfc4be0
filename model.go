package onam

// Model base model definition, embed it to get a primary key
//
//	type User struct {
//	  onam.Model
//	  Name string
//	}
type Model struct {
	ID int64
}

// GetID returns the primary key, 0 until saved.
func (m *Model) GetID() int64 {
	return m.ID
}

// SetID sets the primary key.
func (m *Model) SetID(id int64) {
	m.ID = id
}
