// internal/workers/paperless/sync-correspondents/models.go
package synccorrespondents

const (
	PartySupplier = "supplier"
	PartyCustomer = "customer"
)

type Input struct {
	Party string `json:"party"`
}

type Output struct {
	Party   string `json:"party"`
	Created int    `json:"created"`
	Failed  int    `json:"failed"`
}
