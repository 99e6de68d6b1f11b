//go:build !race

package identity

func secretHashCost() int {
	return 12
}
