package domain

// User is the person currently signed in. There is no authentication;
// the name only tags history descriptions and provenance fields.
type User struct {
	Username  string `json:"username"`
	LoginDate string `json:"loginDate"`
}
