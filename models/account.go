package models

import "deusvent/internal/datetime"

// AccountType is the entity type of player accounts.
const AccountType = "account"

// Account is a registered player. Its entity id equals the user id.
type Account struct {
	UserID    UserID                   `json:"user_id"`
	CreatedAt datetime.ServerTimestamp `json:"created_at"`
}

// AccountKind decodes accounts.
var AccountKind = Kind[*Account]{Type: AccountType, Decode: decodeAccount}

// NewAccount creates an account with a random user id.
func NewAccount(now datetime.ServerTimestamp) *Account {
	return &Account{UserID: NewUserID(), CreatedAt: now}
}

func (a *Account) EntityType() string { return AccountType }

func (a *Account) Key() Key {
	return Key{UserID: a.UserID, EntityID: a.UserID.String()}
}

func (a *Account) MarshalItem(item Item) {
	item.SetNumber("created_at", a.CreatedAt.Milliseconds())
}

func decodeAccount(key Key, item Item) (*Account, error) {
	createdAt, err := item.Number("created_at")
	if err != nil {
		return nil, err
	}
	return &Account{UserID: key.UserID, CreatedAt: datetime.NewServerTimestamp(createdAt)}, nil
}
