package database

import (
	"github.com/bookdaan/bookdaan_backend/utils"
)

// Locks serializes read-modify-write sequences on a single book or chat.
// Shared by the HTTP controllers and the websocket handlers.
var Locks = utils.NewEntityLocker()
