package domain

// CopyMode es la política de sizing que elige cada follower.
type CopyMode string

const (
	ModeMultiplier  CopyMode = "multiplier"   // |master_size| × ratio
	ModeFixedLot    CopyMode = "fixed_lot"    // tamaño constante
	ModeFixedAmount CopyMode = "fixed_amount" // capital fijo / precio
	ModePercentage  CopyMode = "percentage"   // % del balance / precio
)

// AccountStatus indica si una cuenta participa en el mirroring.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusInactive AccountStatus = "inactive"
)

// Credentials son las claves API de una cuenta en el exchange.
type Credentials struct {
	APIKey    string
	APISecret string
}

// BrokerAccount es la cuenta master cuyas posiciones se replican.
// La administra el subsistema de cuentas — el engine solo la lee.
type BrokerAccount struct {
	ID   int64
	Name string
	Credentials
	BaseURL  string
	IsActive bool
}

// Follower es una cuenta suscrita que recibe las órdenes espejo.
// Mutada por el subsistema de cuentas; read-only para el engine.
type Follower struct {
	ID   int64
	Name string
	Credentials
	CopyMode     CopyMode
	Multiplier   float64 // ratio para multiplier
	FixedLot     float64 // contratos para fixed_lot
	FixedCapital float64 // USD para fixed_amount
	Percentage   float64 // 0–100 para percentage
	MinLotSize   float64 // 0 = sin cota inferior
	MaxLotSize   float64 // 0 = sin cota superior
	Status       AccountStatus
}
