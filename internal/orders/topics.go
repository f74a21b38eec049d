package orders

const TopicPaymentRecorded = "storefront.payment.recorded"

// Partition key = payment id.
func PartitionKey(paymentID string) []byte { return []byte(paymentID) }
