package account

func init() {
	bcryptCost = 4
}
