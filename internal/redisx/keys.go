package redisx

const (
	// Cart hash per buyer session: cart:{session_id} -> listing_id => qty
	KeyCart = "cart:%s"

	// Session token: session:{token} -> user_id
	KeySession = "session:%s"
)
