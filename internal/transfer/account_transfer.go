package transfer

type AccountCreation struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
