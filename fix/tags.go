// tags.go
package fix

// Tag identifies a FIX field. Tags appear on the wire as ASCII decimal
// integers before the '=' separator.
type Tag int

// Well-known tags used by the engine itself. Application-level tags come
// from the dictionary, not from this list.
const (
	TagBeginSeqNo       Tag = 7
	TagBeginString      Tag = 8
	TagBodyLength       Tag = 9
	TagCheckSum         Tag = 10
	TagEndSeqNo         Tag = 16
	TagMsgSeqNum        Tag = 34
	TagMsgType          Tag = 35
	TagNewSeqNo         Tag = 36
	TagPossDupFlag      Tag = 43
	TagRefSeqNum        Tag = 45
	TagText             Tag = 58
	TagSenderCompID     Tag = 49
	TagSendingTime      Tag = 52
	TagTargetCompID     Tag = 56
	TagRawDataLength    Tag = 95
	TagRawData          Tag = 96
	TagEncryptMethod    Tag = 98
	TagHeartBtInt       Tag = 108
	TagTestReqID        Tag = 112
	TagGapFillFlag      Tag = 123
	TagResetSeqNumFlag  Tag = 141
	TagDefaultApplVerID Tag = 1137
	TagApplVerID        Tag = 1128
	TagCstmApplVerID    Tag = 1129
)

// MsgType values for the administrative messages the session layer handles.
const (
	MsgTypeHeartbeat     = "0"
	MsgTypeTestRequest   = "1"
	MsgTypeResendRequest = "2"
	MsgTypeReject        = "3"
	MsgTypeSequenceReset = "4"
	MsgTypeLogout        = "5"
	MsgTypeLogon         = "A"
)

// SOH is the FIX field terminator.
const SOH = byte(0x01)

// SendingTimeLayout is the UTC timestamp layout stamped into tag 52.
const SendingTimeLayout = "20060102-15:04:05.000"
