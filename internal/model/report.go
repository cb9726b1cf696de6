package model

// AgentReport summarises the letters an agent has been assigned.
type AgentReport struct {
	AgentID         uint64 `json:"doll_id"`
	Name            string `json:"nombre"`
	TotalLetters    int64  `json:"total_cartas"`
	DistinctClients int64  `json:"clientes_distintos"`
}
