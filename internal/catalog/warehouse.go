package catalog

// WarehouseSource names the built-in warehouse catalog in validation errors.
const WarehouseSource = "builtin:warehouse.yml"

// WarehouseTemplate is the built-in warehouse operations catalog written by
// `goap init`.
const WarehouseTemplate = `# Warehouse operations catalog.
# Conditions: plain values are equality checks; {operator, value} maps compare.
# Effects: plain values assign; {operation, value} maps transform.
actions:
  - id: assign_staff
    name: Assign staff
    description: Put a shift crew on the floor.
    effects:
      staffAvailable: true
    cost: 1
    priority: 2
    duration_ms: 200
    capabilities: [staffing]

  - id: coordinate_resources
    name: Coordinate resources
    description: Free a loading dock for inbound and outbound work.
    preconditions:
      staffAvailable: true
    effects:
      dockAvailable: true
    cost: 2
    priority: 2
    duration_ms: 500
    capabilities: [coordination]

  - id: request_forklift
    name: Request forklift
    effects:
      forkliftAvailable: true
    cost: 1
    priority: 1
    duration_ms: 300
    capabilities: [storage]

  - id: receive_inventory
    name: Receive inventory
    description: Unload the inbound truck at the dock.
    preconditions:
      dockAvailable: true
      inboundTruckArrived: true
    effects:
      inventoryReceived: true
      inboundTruckArrived: false
      receivedPallets:
        operation: increment
        value: 10
    cost: 3
    priority: 1
    duration_ms: 1500
    capabilities: [receiving]

  - id: put_away
    name: Put away
    description: Move received pallets to storage locations.
    preconditions:
      inventoryReceived: true
      forkliftAvailable: true
    effects:
      inventoryStored: true
      inventoryReceived: false
    cost: 2
    priority: 1
    duration_ms: 1000
    capabilities: [storage]

  - id: pick_order
    name: Pick order
    preconditions:
      inventoryStored: true
      pendingOrders:
        operator: ">"
        value: 0
    effects:
      pendingOrders:
        operation: decrement
      pickedOrders:
        operation: increment
    cost: 2
    duration_ms: 800
    capabilities: [picking]

  - id: pack_order
    name: Pack order
    preconditions:
      pickedOrders:
        operator: ">"
        value: 0
    effects:
      pickedOrders:
        operation: decrement
      packedOrders:
        operation: increment
    cost: 1
    duration_ms: 400
    capabilities: [packing]

  - id: schedule_shipment
    name: Schedule shipment
    description: Book a carrier slot for packed orders.
    preconditions:
      dockAvailable: true
      packedOrders:
        operator: ">"
        value: 0
    guard: carrierSlots != nil && carrierSlots > 0
    effects:
      shipmentScheduled: true
      carrierSlots:
        operation: decrement
      events:
        operation: push
        value: shipment_scheduled
    cost: 2
    duration_ms: 600
    capabilities: [shipping]

goals:
  - id: dock_ready
    name: Dock ready
    target:
      dockAvailable: true
    priority: 1

  - id: inventory_stored
    name: Inventory stored
    target:
      inventoryStored: true
    priority: 2

  - id: orders_shipped
    name: Orders shipped
    target:
      shipmentScheduled: true
      pendingOrders:
        operator: "<="
        value: 0
    priority: 3

agents:
  - id: dock-coordinator
    capabilities: [staffing, coordination]
  - id: inbound-agent
    capabilities: [staffing, coordination, receiving, storage]
  - id: fulfillment-agent
    capabilities: [staffing, coordination, receiving, storage, picking, packing, shipping]
`

// WarehouseStateTemplate is the starting world state written by `goap init`.
const WarehouseStateTemplate = `dockAvailable: false
staffAvailable: false
forkliftAvailable: false
inboundTruckArrived: true
pendingOrders: 2
carrierSlots: 1
`

// Warehouse parses the built-in warehouse catalog.
func Warehouse() (*Store, error) {
	doc, err := ParseAndValidateDocument([]byte(WarehouseTemplate), WarehouseSource)
	if err != nil {
		return nil, err
	}
	return NewStore(doc)
}
